package main

import "github.com/chukul/bucketctl/cmd"

func main() {
	cmd.Execute()
}
