// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/invowk/modpak/cmd/modpak"

func main() {
	cmd.Execute()
}
