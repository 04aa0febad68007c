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

// Package cloud provides configuration loading and Google Cloud helpers.
// This file defines the Google Cloud Storage data structures: the Pub/Sub
// object notification payload and a parsed object reference.
package cloud

import (
	"fmt"
	"strings"
)

// GCSScheme prefixes object storage URIs.
const GCSScheme = "gs://"

// GCSObjectParam is the context key of the object named by a trigger.
const GCSObjectParam = "__GCS__OBJ__"

// GCSPubSubNotification is the JSON payload of a Cloud Storage Pub/Sub
// notification. Only the fields the trigger uses are decoded.
type GCSPubSubNotification struct {
	Kind        string            `json:"kind"`        // "storage#object".
	ID          string            `json:"id"`          // Bucket, name and generation.
	Name        string            `json:"name"`        // Object name within the bucket.
	Bucket      string            `json:"bucket"`      // Bucket name.
	Generation  string            `json:"generation"`  // Content generation.
	ContentType string            `json:"contentType"` // MIME type of the object.
	Size        string            `json:"size"`        // Size in bytes.
	Updated     string            `json:"updated"`     // Last modification time.
	MetaData    map[string]string `json:"metadata"`    // User metadata.
}

// GCSObject references an object, or a prefix of objects when Name ends in
// "/".
type GCSObject struct {
	Bucket   string
	Name     string
	MIMEType string
}

// URI renders the object as gs://bucket/name.
func (o GCSObject) URI() string {
	return GCSScheme + o.Bucket + "/" + o.Name
}

// IsPrefix reports whether the reference names a prefix rather than one
// object.
func (o GCSObject) IsPrefix() bool {
	return o.Name == "" || strings.HasSuffix(o.Name, "/")
}

// Contains reports whether other is this object, or lies under this prefix.
func (o GCSObject) Contains(other GCSObject) bool {
	if o.Bucket != other.Bucket {
		return false
	}
	if o.IsPrefix() {
		return strings.HasPrefix(other.Name, o.Name)
	}
	return o.Name == other.Name
}

// IsGCSURI reports whether uri uses the gs:// scheme.
func IsGCSURI(uri string) bool {
	return strings.HasPrefix(uri, GCSScheme)
}

// ParseGCSURI splits gs://bucket/name into a GCSObject.
func ParseGCSURI(uri string) (GCSObject, error) {
	if !IsGCSURI(uri) {
		return GCSObject{}, fmt.Errorf("not a %s URI: %q", GCSScheme, uri)
	}
	rest := strings.TrimPrefix(uri, GCSScheme)
	bucket, name, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return GCSObject{}, fmt.Errorf("missing bucket in %q", uri)
	}
	return GCSObject{Bucket: bucket, Name: name}, nil
}
