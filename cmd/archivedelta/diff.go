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
	diffAlgoFlag     string
	diffCompressFlag string

	cmdDiff = &cobra.Command{
		Use:          "diff <before> <after> <out.patch>",
		Short:        "Produce a Patch transforming <before> into <after>",
		Args:         cobra.ExactArgs(3),
		RunE:         runDiff,
		SilenceUsage: true,
	}
)

func init() {
	cmdDiff.Flags().StringVar(&diffAlgoFlag, "algo", "rsync", "Diff codec: rsync or bidiff")
	cmdDiff.Flags().StringVar(&diffCompressFlag, "compress", "zstd", "Payload compression: none or zstd")
}

func runDiff(cmd *cobra.Command, args []string) error {
	algo, err := parseAlgo(diffAlgoFlag)
	if err != nil {
		return err
	}
	compressAlgo, err := parseCompress(diffCompressFlag)
	if err != nil {
		return err
	}

	before, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "reading before file")
	}
	after, err := os.ReadFile(args[1])
	if err != nil {
		return errors.Wrap(err, "reading after file")
	}

	p, err := archivedelta.Diff(before, after, algo, compressAlgo)
	if err != nil {
		return err
	}

	encoded, err := p.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encoding patch")
	}
	if err := os.WriteFile(args[2], encoded, 0o644); err != nil {
		return errors.Wrap(err, "writing patch file")
	}

	plog.Infof("diff: wrote %s (%d bytes, algo=%s, compress=%v)", args[2], len(encoded), algo, compressAlgo)
	return nil
}
