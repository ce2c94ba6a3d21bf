package main

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// launchEditor opens paths in the external image editor and does not wait for
// it to exit.
func launchEditor(editor string, paths []string) error {
	if editor == "" {
		return errors.New("no image editor configured")
	}
	if len(paths) == 0 {
		return errors.New("nothing to open")
	}
	cmd := exec.Command(editor, paths...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", editor, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			logrus.WithFields(logrus.Fields{"editor": editor, "error": err}).Warn("image editor exited with error")
		}
	}()
	return nil
}
