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

var cmdApply = &cobra.Command{
	Use:          "apply <before> <patch> <out>",
	Short:        "Reconstruct <out> from <before> and a Patch file",
	Args:         cobra.ExactArgs(3),
	RunE:         runApply,
	SilenceUsage: true,
}

func runApply(cmd *cobra.Command, args []string) error {
	before, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "reading before file")
	}
	encoded, err := os.ReadFile(args[1])
	if err != nil {
		return errors.Wrap(err, "reading patch file")
	}

	var p patch.Patch
	if err := p.UnmarshalBinary(encoded); err != nil {
		return errors.Wrap(err, "decoding patch")
	}

	after, err := archivedelta.Apply(before, &p)
	if err != nil {
		return err
	}

	if err := os.WriteFile(args[2], after, 0o644); err != nil {
		return errors.Wrap(err, "writing output file")
	}

	plog.Infof("apply: wrote %s (%d bytes)", args[2], len(after))
	return nil
}
