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

package health

// Report is a group of results from multiple checkers.
type Report struct {
	// Status is the overall status for the whole system.
	// It is usually computed from individual results.
	Status Status

	// Results contains all individual check results.
	Results []Result
}
