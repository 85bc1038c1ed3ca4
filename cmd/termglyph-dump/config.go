package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML configuration accepted by --config.
//
//	size: 11
//	dpi: 96
//	fonts:
//	  medium: /usr/share/fonts/TTF/DejaVuSansMono.ttf
//	  bold: /usr/share/fonts/TTF/DejaVuSansMono-Bold.ttf
//	symbol_maps:
//	  - left: 0xe000
//	    right: 0xe00a
//	    font: /usr/share/fonts/TTF/PowerlineSymbols.ttf
type fileConfig struct {
	Size float64 `yaml:"size"`
	DPI  float64 `yaml:"dpi"`

	AdjustLineHeightPx   int     `yaml:"adjust_line_height_px"`
	AdjustLineHeightFrac float64 `yaml:"adjust_line_height_frac"`

	Fonts struct {
		Medium string `yaml:"medium"`
		Bold   string `yaml:"bold"`
		Italic string `yaml:"italic"`
		BI     string `yaml:"bi"`
	} `yaml:"fonts"`

	SymbolMaps []symbolMapConfig `yaml:"symbol_maps"`
}

type symbolMapConfig struct {
	Left  uint32 `yaml:"left"`
	Right uint32 `yaml:"right"`
	Font  string `yaml:"font"`
}

func defaultFileConfig() *fileConfig {
	return &fileConfig{}
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := defaultFileConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i, sm := range cfg.SymbolMaps {
		if sm.Right < sm.Left {
			return nil, fmt.Errorf("%s: symbol map %d has right < left", path, i)
		}
		if sm.Font == "" {
			return nil, fmt.Errorf("%s: symbol map %d has no font", path, i)
		}
	}
	return cfg, nil
}
