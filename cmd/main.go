package main

import "github.com/adanyl0v/go-task-tree/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustInitStorage()
	defer app.CloseStorage()

	app.InitServices()
	app.MustListenAndServeHTTP()
}
