package main

import "github.com/ChunkyMonkey11/AzureHackathonTodo/internal/app"

func main() {
	app.Execute()
}
