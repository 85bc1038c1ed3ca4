package main

import (
	"fmt"
	"os"
)

// atlasCollector implements the upload sink by keeping every sprite
// in memory, keyed by its atlas position.
type atlasCollector struct {
	cellWidth  int
	cellHeight int
	sprites    map[[3]uint16][]byte
	count      int
}

func newAtlasCollector(cellWidth, cellHeight int) *atlasCollector {
	return &atlasCollector{
		cellWidth:  cellWidth,
		cellHeight: cellHeight,
		sprites:    make(map[[3]uint16][]byte),
	}
}

func (a *atlasCollector) sink(x, y, z uint16, pixels []byte) {
	buf := make([]byte, len(pixels))
	copy(buf, pixels)
	a.sprites[[3]uint16{x, y, z}] = buf
	a.count++
}

// writePGMs assembles each atlas layer into a binary PGM image.
func (a *atlasCollector) writePGMs(prefix string, xnum, ynum, znum int) ([]string, error) {
	var files []string
	for z := 0; z <= znum; z++ {
		w := xnum * a.cellWidth
		h := ynum * a.cellHeight
		img := make([]byte, w*h)
		for pos, pixels := range a.sprites {
			if int(pos[2]) != z {
				continue
			}
			ox := int(pos[0]) * a.cellWidth
			oy := int(pos[1]) * a.cellHeight
			for row := 0; row < a.cellHeight; row++ {
				copy(img[(oy+row)*w+ox:(oy+row)*w+ox+a.cellWidth],
					pixels[row*a.cellWidth:(row+1)*a.cellWidth])
			}
		}
		name := fmt.Sprintf("%s-%d.pgm", prefix, z)
		if err := writePGM(name, w, h, img); err != nil {
			return nil, err
		}
		files = append(files, name)
	}
	return files, nil
}

func writePGM(path string, w, h int, pixels []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "P5\n%d %d\n255\n", w, h); err != nil {
		return err
	}
	_, err = f.Write(pixels)
	return err
}
