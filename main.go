// main.go - geojson-to-mvt entry point
package main

import "github.com/valpere/tile_to_json/cmd"

func main() {
	cmd.Execute()
}
