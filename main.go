package main

import "github.com/shouni/go-blog-summarizer/cmd"

func main() {
	cmd.Execute()
}
