package main

import (
	"flag"
	_ "time/tzdata"

	"taskcal/internal/app"
	"taskcal/internal/config"
)

// @title                       taskcal API
// @version                     1.0
// @description                 Todo and calendar backend with category-based reminders.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	app.Run(*configPath)
}
