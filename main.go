package main

import "github.com/Taichi-iskw/yt-shorts/cmd"

func main() {
	cmd.Execute()
}
