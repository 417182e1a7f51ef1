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

	"github.com/coreos/pkg/capnslog"
	"github.com/spf13/cobra"
)

var (
	plog = capnslog.NewPackageLogger("github.com/coreos/archivedelta", "cmd")

	root = &cobra.Command{
		Use:   "archivedelta [command]",
		Short: "Binary delta engine for ZIP archives",
	}

	logDebug   bool
	logVerbose bool
	logLevel   = capnslog.NOTICE
)

func init() {
	root.PersistentFlags().Var(&logLevel, "log-level", "Set global log level.")
	root.PersistentFlags().BoolVarP(&logVerbose, "verbose", "v", false, "Alias for --log-level=INFO")
	root.PersistentFlags().BoolVarP(&logDebug, "debug", "d", false, "Alias for --log-level=DEBUG")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		startLogging(cmd)
	}

	root.AddCommand(cmdDiff)
	root.AddCommand(cmdApply)
	root.AddCommand(cmdDiffZip)
	root.AddCommand(cmdApplyZip)
	root.AddCommand(cmdInspect)
}

func startLogging(cmd *cobra.Command) {
	switch {
	case logDebug:
		logLevel = capnslog.DEBUG
	case logVerbose:
		logLevel = capnslog.INFO
	}
	capnslog.SetFormatter(capnslog.NewStringFormatter(cmd.OutOrStderr()))
	capnslog.SetGlobalLogLevel(logLevel)
	plog.Infof("Started logging at level %s", logLevel)
}

func main() {
	if err := root.Execute(); err != nil {
		plog.Fatal(err)
	}
	os.Exit(0)
}
