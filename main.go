package main

import "github.com/matheuskafuri/bookshelf/cmd"

func main() {
	cmd.Execute()
}
