package main

import "github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/cmd"

func main() {
	cmd.Execute()
}
