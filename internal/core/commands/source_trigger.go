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

package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/model"
)

// SourceTrigger decodes a Cloud Storage notification and decides whether the
// object is one of the configured sources. On a match the source name is
// stored under ParamTriggerMatched and the object under cloud.GCSObjectParam.
// A notification that cannot be decoded is skipped, not retried.
type SourceTrigger struct {
	cor.BaseCommand
	sources cloud.Sources
}

func NewSourceTrigger(name string, sources cloud.Sources) *SourceTrigger {
	return &SourceTrigger{BaseCommand: *cor.NewBaseCommand(name), sources: sources}
}

func (c *SourceTrigger) Execute(context cor.Context) {
	in, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.Skip(context, fmt.Errorf("notification is %T, not text", context.Get(c.GetInputParam())))
		return
	}

	var notification cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &notification); err != nil {
		c.Skip(context, &model.StageError{Stage: c.GetName(), Reason: "malformed notification", Err: err})
		return
	}
	obj := &cloud.GCSObject{Bucket: notification.Bucket, Name: notification.Name, MIMEType: notification.ContentType}
	context.Add(cloud.GCSObjectParam, obj)

	source, matched := c.Match(*obj)
	if !matched {
		slog.InfoContext(context.GetContext(), "object is not a configured source, ignoring", "object", obj.URI())
		c.Complete(context, obj, 1, 0)
		return
	}
	slog.InfoContext(context.GetContext(), "source object changed", "source", source, "object", obj.URI())
	context.Add(ParamTriggerMatched, source)
	c.Complete(context, obj, 1, 1)
}

// Match returns the name of the configured gs:// source that contains obj.
func (c *SourceTrigger) Match(obj cloud.GCSObject) (string, bool) {
	byName := c.sources.ByName()
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		configured, err := cloud.ParseGCSURI(byName[name])
		if err != nil {
			continue
		}
		if configured.Contains(obj) {
			return name, true
		}
	}
	return "", false
}
