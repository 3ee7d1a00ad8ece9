package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"townsfolk/internal/patrol"
)

func main() {
	var mapPath string
	var watch bool
	flag.StringVar(&mapPath, "map", "maps/village.yaml", "YAML map file")
	flag.BoolVar(&watch, "watch", true, "rebuild routes when the map file changes on disk")
	flag.Parse()

	v, err := patrol.NewViewer(mapPath, watch)
	if err != nil {
		log.Fatal(err)
	}
	defer v.Close()

	w, h := v.Layout(0, 0)
	ebiten.SetWindowTitle("Townsfolk")
	ebiten.SetWindowSize(w, h)
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
