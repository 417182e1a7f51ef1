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
)

var (
	diffZipAlgoFlag     string
	diffZipCompressFlag string

	cmdDiffZip = &cobra.Command{
		Use:          "diff-zip <before.zip> <after.zip> <out.patchset>",
		Short:        "Produce a PatchSet transforming <before.zip> into <after.zip>",
		Args:         cobra.ExactArgs(3),
		RunE:         runDiffZip,
		SilenceUsage: true,
	}
)

func init() {
	cmdDiffZip.Flags().StringVar(&diffZipAlgoFlag, "algo", "rsync", "Diff codec: rsync or bidiff")
	cmdDiffZip.Flags().StringVar(&diffZipCompressFlag, "compress", "zstd", "Payload compression: none or zstd")
}

func runDiffZip(cmd *cobra.Command, args []string) error {
	algo, err := parseAlgo(diffZipAlgoFlag)
	if err != nil {
		return err
	}
	compressAlgo, err := parseCompress(diffZipCompressFlag)
	if err != nil {
		return err
	}

	ps, err := archivedelta.DiffZip(args[0], args[1], algo, compressAlgo)
	if err != nil {
		return err
	}

	encoded, err := ps.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encoding patchset")
	}
	if err := os.WriteFile(args[2], encoded, 0o644); err != nil {
		return errors.Wrap(err, "writing patchset file")
	}

	plog.Infof("diff-zip: wrote %s (%d bytes, %d operations)", args[2], len(encoded), len(ps.Operations))
	return nil
}
