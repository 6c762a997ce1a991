package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron"

	"github.com/bcaldwell/grantpulse/internal/awardimporter"
	"github.com/bcaldwell/grantpulse/pkg/config"
)

const configEnvVar = "GRANTPULSE_CONFIG"

type Runner interface {
	Run() error
}

var runner Runner

func main() {
	singleRun := flag.Bool("single-run", false, "run task once (disable cron)")
	configFile := flag.String("config", "./config.yml", "configuration file")
	secretsFile := flag.String("secrets", "./secrets.json", "secrets file")
	help := flag.Bool("help", false, "show command help")

	flag.Parse()

	if *help {
		fmt.Println("nih grant award trend importer")
		fmt.Println("grantpulse [options] task")
		fmt.Println("tasks: import, render")
		flag.PrintDefaults()
		return
	}

	// .env is optional, for local runs
	godotenv.Load()

	cfg, secrets, err := config.Read(configEnvVar, *configFile, *secretsFile)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	switch flag.Arg(0) {
	case "import", "":
		runner, err = awardimporter.NewImportAwardsRunner(cfg, secrets)
	case "render":
		runner, err = awardimporter.NewRenderRunner(cfg, secrets)
	default:
		fmt.Printf("Unknown task %s\n", flag.Arg(0))
		os.Exit(1)
	}

	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	failed := run()

	if *singleRun || cfg.Reporter.UpdateFrequency == "" {
		if failed {
			os.Exit(1)
		}
		return
	}

	c := cron.New()
	c.AddFunc(cfg.Reporter.UpdateFrequency, func() { run() })

	c.Start()

	select {}
}

func run() bool {
	fmt.Println(time.Now().Format(time.RFC850))
	err := runner.Run()
	if err != nil {
		fmt.Println(err)
		return true
	}
	return false
}
