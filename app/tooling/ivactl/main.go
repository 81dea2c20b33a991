package main

import "github.com/xlerion/ivachain/app/tooling/ivactl/cmd"

func main() {
	cmd.Execute()
}
