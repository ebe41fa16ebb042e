package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"shorts-factory/internal/ffmpeg"
)

type doctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type doctorReport struct {
	OK     bool          `json:"ok"`
	Checks []doctorCheck `json:"checks"`
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	res := doctorReport{OK: true}
	add := func(name string, ok bool, message string) {
		if !ok {
			res.OK = false
		}
		res.Checks = append(res.Checks, doctorCheck{Name: name, OK: ok, Message: message})
	}

	deps := ffmpeg.DependencyStatus()
	add("ffmpeg", deps.FFmpegFound, toolMessage(deps.FFmpegFound, deps.FFmpegPath, "required for every transform"))
	add("ffprobe", deps.FFprobeFound, toolMessage(deps.FFprobeFound, deps.FFprobePath, "required to read video dimensions"))
	add("demucs", deps.DemucsFound, toolMessage(deps.DemucsFound, deps.DemucsPath, "required unless running with --keep-voice"))

	for _, target := range []string{"instagram", "tiktok", "youtube"} {
		missing := missingEnv(targetEnv[target])
		if len(missing) == 0 {
			add(target+" credentials", true, "all environment variables set")
			continue
		}
		add(target+" credentials", false, "missing "+strings.Join(missing, ", "))
	}

	if *jsonOut {
		return printJSON(res)
	}
	for _, c := range res.Checks {
		status := "ok"
		if !c.OK {
			status = "fail"
		}
		fmt.Printf("%s: %s (%s)\n", c.Name, status, c.Message)
	}
	if !res.OK {
		return errors.New("doctor checks failed")
	}
	fmt.Println("doctor: all checks passed")
	return nil
}

func toolMessage(found bool, path, hint string) string {
	if found {
		return path
	}
	return "not found on PATH; " + hint
}
