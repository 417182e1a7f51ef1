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

// Package hash computes the content digest used throughout archivedelta to
// fingerprint blobs and detect corruption or mismatched inputs.
package hash

import (
	"crypto/md5"
	"encoding/hex"
)

// Size is the length in characters of a rendered digest.
const Size = 32

// Sum returns the lowercase hex MD5 digest of b. The algorithm is a fixed
// part of the on-disk patch format: changing it invalidates every
// previously persisted Patch and PatchSet.
func Sum(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
