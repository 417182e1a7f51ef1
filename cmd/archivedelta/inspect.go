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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/coreos/archivedelta/patch"
)

var cmdInspect = &cobra.Command{
	Use:          "inspect <patch-or-patchset>",
	Short:        "Print algorithm, hashes, and size of a Patch or PatchSet file",
	Args:         cobra.ExactArgs(1),
	RunE:         runInspect,
	SilenceUsage: true,
}

// runInspect tries the Patch encoding first, then the PatchSet encoding.
// Neither format carries a kind tag; Patch.UnmarshalBinary accepts the data
// only when its length-prefixed payload ends exactly at the end of the file,
// and otherwise the PatchSet decoder is tried.
func runInspect(cmd *cobra.Command, args []string) error {
	encoded, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "reading file")
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	defer w.Flush()

	var p patch.Patch
	if err := p.UnmarshalBinary(encoded); err == nil {
		fmt.Fprintf(w, "kind\tPatch\n")
		fmt.Fprintf(w, "diff algorithm\t%s\n", p.DiffAlgorithm)
		fmt.Fprintf(w, "compress algorithm\t%v\n", p.CompressAlgorithm)
		fmt.Fprintf(w, "before hash\t%s\n", p.BeforeHash)
		fmt.Fprintf(w, "after hash\t%s\n", p.AfterHash)
		fmt.Fprintf(w, "size (bytes)\t%d\n", p.Size())
		return nil
	}

	var ps patch.PatchSet
	if err := ps.UnmarshalBinary(encoded); err == nil {
		fmt.Fprintf(w, "kind\tPatchSet\n")
		fmt.Fprintf(w, "before hash\t%s\n", ps.HashBefore)
		fmt.Fprintf(w, "operations hash\t%s\n", ps.OperationsHash)
		fmt.Fprintf(w, "operation count\t%d\n", len(ps.Operations))

		var total int
		counts := map[patch.OperationKind]int{}
		for _, no := range ps.Operations {
			counts[no.Op.Kind]++
			total += no.Op.Size()
		}
		for _, kind := range []patch.OperationKind{patch.OpPatch, patch.OpPutFile, patch.OpDeleteFile, patch.OpFileStaysSame} {
			fmt.Fprintf(w, "  %s\t%d\n", kind, counts[kind])
		}
		fmt.Fprintf(w, "total size (bytes)\t%d\n", total)
		return nil
	}

	return errors.New("file is neither a valid Patch nor a valid PatchSet encoding")
}
