// Copyright 2016 CoreOS, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"github.com/pkg/errors"

	"github.com/coreos/archivedelta/compress"
	"github.com/coreos/archivedelta/patch"
)

func parseAlgo(s string) (patch.DiffAlgorithm, error) {
	switch s {
	case "rsync":
		return patch.Rsync020, nil
	case "bidiff":
		return patch.Bidiff1, nil
	default:
		return 0, errors.Errorf("unknown --algo %q, want \"rsync\" or \"bidiff\"", s)
	}
}

func parseCompress(s string) (patch.CompressAlgorithm, error) {
	switch s {
	case "none":
		return compress.None, nil
	case "zstd":
		return compress.Zstd, nil
	default:
		return 0, errors.Errorf("unknown --compress %q, want \"none\" or \"zstd\"", s)
	}
}
