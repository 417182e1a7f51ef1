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
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/coreos/archivedelta"
	"github.com/coreos/archivedelta/patch"
)

var cmdApplyZip = &cobra.Command{
	Use:          "apply-zip <before.zip> <patchset> <out.zip>",
	Short:        "Reconstruct <out.zip> from <before.zip> and a PatchSet file",
	Args:         cobra.ExactArgs(3),
	RunE:         runApplyZip,
	SilenceUsage: true,
}

func runApplyZip(cmd *cobra.Command, args []string) error {
	encoded, err := os.ReadFile(args[1])
	if err != nil {
		return errors.Wrap(err, "reading patchset file")
	}

	var ps patch.PatchSet
	if err := ps.UnmarshalBinary(encoded); err != nil {
		return errors.Wrap(err, "decoding patchset")
	}

	if err := archivedelta.ApplyZip(args[0], &ps, args[2]); err != nil {
		return err
	}

	plog.Infof("apply-zip: wrote %s (%d operations)", args[2], len(ps.Operations))
	return nil
}
