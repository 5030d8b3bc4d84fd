package main

import "github.com/scribenet/scribe/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
