package main

import (
	"encoding/json"

	"github.com/trezcool/edulead/core/scoring"
)

func (cli *commandLine) score(in scoring.Input) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(cli.scorer.Score(in))
}
