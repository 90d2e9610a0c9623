// Command quizbot runs the Telegram trivia quiz bot.
package main

import (
	"log"

	corecmd "github.com/m3rciful/quizbot/core/cmd"
	coreconfig "github.com/m3rciful/quizbot/core/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return coreconfig.Load(path)
		},
		Bootstrap: newApp,
	})
	if err != nil {
		log.Fatal(err)
	}
}
