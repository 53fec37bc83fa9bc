package main

import "github.com/smegmarip/live-recognition/cmd"

func main() {
	cmd.Execute()
}
