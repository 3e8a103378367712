// Copyright 2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd
import (
	"fmt"
	"strings"

	"github.com/penny-vault/brfin/pkginfo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	versionDeps   bool
	versionShort  bool
	versionFilter []string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the brfin build, the identity sent to the CVM portal and linked modules",
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Println(pkginfo.Version)
			return
		}

		fmt.Println(pkginfo.BuildVersionString())
		fmt.Printf("User-Agent: %s\n", pkginfo.UserAgent())
		if fn := viper.ConfigFileUsed(); fn != "" {
			fmt.Printf("Config: %s\n", fn)
		}

		if versionDeps {
			fmt.Printf("\nModules:\n")
			fmt.Println(strings.Join(pkginfo.FilterDependencies(pkginfo.GetDependencyList(), versionFilter...), "\n"))
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&versionDeps, "deps", "d", false, "print linked modules")
	versionCmd.Flags().StringSliceVar(&versionFilter, "module", nil, "only print modules starting with this path (repeatable)")
	versionCmd.Flags().BoolVarP(&versionShort, "short", "s", false, "only print version number")
}
