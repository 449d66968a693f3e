package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"laptudirm.com/x/lookout/internal/lookout/cmd"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		PadLevelText:     true,
	})
	logrus.SetLevel(logrus.InfoLevel)

	if err := lookout(); err != nil {
		logrus.Fatal(err)
	}
}

func lookout() error {
	root := cmd.Root()
	root.SetArgs(os.Args[1:])
	return root.Execute()
}
