package detector

import "igaudit/pkg/config"

func classifierConfigWithMinFollowers(n int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Classifier.MinFollowers = n
	return cfg
}
