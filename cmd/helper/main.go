package main

import (
	"fmt"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/jazzband/jazzhands/internal/helpers"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:    "Jazzhands Helper",
		Version: versioninfo.Short(),
		Commands: []*cli.Command{
			runGenerateSecret,
		},
	}

	app.RunAndExitOnError()
}

var runGenerateSecret = &cli.Command{
	Name:  "generate-secret",
	Usage: "generate a random SECRET_KEY for signing sessions and oauth state",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "bytes",
			Value: 32,
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "append SECRET_KEY=<secret> to this file instead of printing it",
		},
	},
	Action: func(cmd *cli.Context) error {
		if cmd.Int("bytes") < 16 {
			return fmt.Errorf("refusing to generate a secret shorter than 16 bytes")
		}

		secret, err := helpers.GenerateToken(cmd.Int("bytes"))
		if err != nil {
			return err
		}

		line := fmt.Sprintf("SECRET_KEY=%s\n", secret)

		path := cmd.String("env-file")
		if path == "" {
			fmt.Fprint(cmd.App.Writer, line)
			return nil
		}

		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return err
		}
		defer f.Close()

		if _, err := f.WriteString(line); err != nil {
			return err
		}

		return nil
	},
}
