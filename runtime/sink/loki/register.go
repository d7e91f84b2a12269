/*
   Copyright 2025 The FluxLog Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package loki

import (
	"context"
	"net/http"
	"time"

	asink "github.com/fluxlog/fluxlog/apis/sink"
	"github.com/fluxlog/fluxlog/runtime/registry"
	sinkregistry "github.com/fluxlog/fluxlog/runtime/sink"
)

func init() {
	sinkregistry.Register("loki", build)
}

func build(_ context.Context, _ registry.Key, spec asink.Specification) (asink.Sink, error) {
	opt := Options{
		Name:    spec.Name,
		PushURL: spec.Params["push_url"],
		Labels:  spec.Labels,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
	return New(opt)
}
