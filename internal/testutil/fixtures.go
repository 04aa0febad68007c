// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package test

// WikipediaJSON holds six encyclopedic records: three films, a duplicate of
// the first, a series and a record without a director.
//
//   - tt1234567 "The Test Film": box office $12 million, running time 1h 30.
//   - tt7654321 "Second Feature": budget $2,500,000, 95 min.
//   - tt0000001 "Old Picture": released 1950, while the catalog says 2005.
const WikipediaJSON = `[
  {
    "url": "https://en.wikipedia.org/wiki/The_Test_Film",
    "title": "The Test Film",
    "Directed by": "Jane Doe",
    "Produced by": ["Sam Producer", "Pat Producer"],
    "Written by": "Wes Writer",
    "Starring": ["Ann Actor", "Bob Actor"],
    "Music by": "Cal Composer",
    "Cinematography": "Dee Camera",
    "Edited by": "Eve Editor",
    "Distributed by": "Acme Pictures",
    "Release date": ["July 1, 1999", "(United States)"],
    "Running time": "1h 30",
    "Country": "United States",
    "Language": "English",
    "Budget": "$5 million",
    "Box office": "$12 million[1]",
    "Based on": "The Test Novel",
    "Productioncompany ": "Acme Studios",
    "imdb_link": "https://www.imdb.com/title/tt1234567/"
  },
  {
    "url": "https://en.wikipedia.org/wiki/Second_Feature",
    "title": "Second Feature",
    "Director": "John Roe",
    "Producer": "Max Producer",
    "Screenplay by": "Ria Writer",
    "Starring": "Cy Actor",
    "Release date": "2001-05-05",
    "Running time": "95 min",
    "Country": "Canada",
    "Language": "French",
    "Budget": "$2,500,000",
    "Box office": "$1.2–3 million",
    "Also known as": "Deuxième film",
    "imdb_link": "https://www.imdb.com/title/tt7654321/"
  },
  {
    "url": "https://en.wikipedia.org/wiki/The_Test_Film_(remaster)",
    "title": "The Test Film (remaster)",
    "Directed by": "Jane Doe",
    "imdb_link": "https://www.imdb.com/title/tt1234567/"
  },
  {
    "url": "https://en.wikipedia.org/wiki/Old_Picture",
    "title": "Old Picture",
    "Directed by": "Ole Director",
    "Release date": "1950",
    "Running time": "80 minutes",
    "imdb_link": "https://www.imdb.com/title/tt0000001/"
  },
  {
    "url": "https://en.wikipedia.org/wiki/Some_Series",
    "title": "Some Series",
    "Directed by": "Tv Director",
    "No. of episodes": "10",
    "imdb_link": "https://www.imdb.com/title/tt5555555/"
  },
  {
    "url": "https://en.wikipedia.org/wiki/No_Director",
    "title": "No Director",
    "imdb_link": "https://www.imdb.com/title/tt6666666/"
  }
]`

// CatalogCSV holds five catalog rows: three that join the films above, one
// adult row and one whose id is not a number.
//
//   - 101 tt1234567: runtime 0 and revenue 0, so both are filled from the
//     encyclopedia; budget 5 is kept.
//   - 102 tt7654321: budget 0, filled with 2,500,000.
//   - 103 tt0000001: released 2005, removed by the date check.
const CatalogCSV = `adult,belongs_to_collection,budget,genres,homepage,id,imdb_id,original_language,original_title,overview,popularity,poster_path,production_companies,production_countries,release_date,revenue,runtime,spoken_languages,status,tagline,title,video,vote_average,vote_count
False,,5,"[{'id': 18, 'name': 'Drama'}]",,101,tt1234567,en,The Test Film,A film about tests.,1.5,/a.jpg,"[{'name': 'Acme Studios', 'id': 1}]","[{'iso_3166_1': 'US', 'name': 'United States of America'}]",1999-07-01,0,0,"[{'iso_639_1': 'en', 'name': 'English'}]",Released,Testing is believing.,The Test Film,False,7.5,120
False,,0,"[{'id': 35, 'name': 'Comedy'}]",,102,tt7654321,fr,Deuxième film,A second film.,2.25,/b.jpg,[],[],2001-05-05,1000000,95,[],Released,,Second Feature,False,6.1,40
False,,1000,[],,103,tt0000001,en,Old Picture,An old film.,0.5,/c.jpg,[],[],2005-01-01,0,80,[],Released,,Old Picture,False,5.0,3
True,,0,[],,104,tt1234567,en,Adult Film,,0.1,,[],[],2000-01-01,0,0,[],Released,,Adult Film,False,0,0
False,,10,[],,not-a-number,tt7777777,en,Broken Row,,1.0,,[],[],2000-01-01,0,0,[],Released,,Broken Row,False,0,0
`

// RatingsCSV holds six rating rows, one of which does not parse.
//
//   - movie 101: 4.0, 4.0, 3.5
//   - movie 102: 5.0
//   - movie 999: 2.0 (not in the catalog)
const RatingsCSV = `userId,movieId,rating,timestamp
1,101,4.0,1256677221
2,101,4.0,1256677222
3,101,3.5,1256677223
1,102,5.0,1256677224
4,999,2.0,1256677225
5,abc,3.0,1256677226
`
