package boot

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env     string `env:"ENV,default=dev"`
	DataDir string `env:"DATA_DIR,default=."`
	Ops     struct {
		Port string `env:"OPS_PORT,default=8081"`
	}
	Store struct {
		Token    string `env:"GITHUB_TOKEN,required"`
		Owner    string `env:"GITHUB_OWNER,default=AlgoRL"`
		Branch   string `env:"GITHUB_BRANCH,default=main"`
		FilePath string `env:"GITHUB_FILE,default=index.html"`
		Identity string `env:"IDENTITY_REPO,default=IDS"`
		UserInfo string `env:"USERINFO_REPO,default=AlgoModBotInfo"`
		Catalog  string `env:"CATALOG_REPO,default=ModInfo"`
	}
	Discord struct {
		Token               string `env:"TOKEN,required"`
		GuildID             string `env:"GUILD_ID,required"`
		VerifyChannel       string `env:"VERIFY_CHANNEL,required"`
		LogChannel          string `env:"LOG_CHANNEL,required"`
		ModListChannel      string `env:"MOD_LIST_CHANNEL"`
		InstructionsChannel string `env:"INSTRUCTIONS_CHANNEL"`
	}
	Roles struct {
		Tier1    string `env:"TIER1_ROLE,required"`
		Tier2    string `env:"TIER2_ROLE,required"`
		Tier3    string `env:"TIER3_ROLE,required"`
		TierX    string `env:"TIERX_ROLE,required"`
		Verified string `env:"VERIFIED_ROLE,required"`
		Patron   string `env:"PATREON_ROLE,required"`
	}
}

func Load() (*Config, error) {
	config := &Config{}
	if err := envconfig.Process(context.Background(), config); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "dev"
}
