package main

import "github.com/shivaam-bhati/Conversational-Article-Explainer/cmd"

func main() {
	cmd.Execute()
}
