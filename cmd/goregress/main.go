package main

import "github.com/dbsmedya/goregress/cmd/goregress/cmd"

func main() {
	cmd.Execute()
}
