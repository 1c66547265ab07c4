package main

import (
	"github.com/leshachaplin/exmanalytics/app"
	"github.com/leshachaplin/exmanalytics/internal/config"
)

func main() {
	app.New(config.Load).Start()
}
