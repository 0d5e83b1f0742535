package main

import "github.com/meysamhadeli/gitai/cmd"

func main() {
	cmd.Execute()
}
