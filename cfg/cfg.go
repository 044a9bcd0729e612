package cfg

type (
	App struct {
		Name    string
		Version string
	}

	Log struct {
		Driver string // console | logrus
		Level  string
		Format string // text | json
	}

	GithubApi struct {
		Username             string
		AccessToken          string
		ApiUrl               string
		PinnedApiUrl         string
		PinnedSource         string // service | profile
		ProfileUrl           string
		RawContentUrl        string
		RequestTimeoutSec    int
		RequestsPerSecond    int
		RateLimitFallbackSec int
		MaxRedirects         int
		ReposPerPage         int
		FollowersPerPage     int
		TagRepoLimit         int
		TagWorkers           int
		PinnedFallbackCount  int
	}

	Cache struct {
		Driver         string // memory | sqlite | mysql
		SqlitePath     string
		SnapshotKey    string
		TokenKey       string
		SnapshotTTLMin int
	}

	Mysql struct {
		Host                  string
		Port                  string
		Username              string
		Password              string
		Database              string
		MaxIdleConnection     int
		MaxOpenConnection     int
		MaxLifeTimeConnection int
	}

	KafkaProducer struct {
		TopicSnapshot string
	}

	Kafka struct {
		Brokers  []string
		GroupID  string
		Producer KafkaProducer
	}

	Recovery struct {
		TickIntervalMs   int
		RetryIntervalSec int
	}

	Ui struct {
		Port            int
		ShutdownTimeout int
	}
)

type Config struct {
	App       App
	Log       Log
	GithubApi GithubApi
	Cache     Cache
	Mysql     Mysql
	Kafka     Kafka
	Recovery  Recovery
	Ui        Ui
}

// Defaults fills zero-value fields.
func (c *Config) Defaults() {
	if c.App.Name == "" {
		c.App.Name = "github-portfolio-sync"
	}
	if c.Log.Driver == "" {
		c.Log.Driver = "console"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	g := &c.GithubApi
	if g.ApiUrl == "" {
		g.ApiUrl = "https://api.github.com"
	}
	if g.PinnedApiUrl == "" {
		g.PinnedApiUrl = "https://gh-pinned-repos.egoist.dev/"
	}
	if g.PinnedSource == "" {
		g.PinnedSource = "service"
	}
	if g.ProfileUrl == "" {
		g.ProfileUrl = "https://github.com"
	}
	if g.RawContentUrl == "" {
		g.RawContentUrl = "https://raw.githubusercontent.com"
	}
	if g.RequestTimeoutSec == 0 {
		g.RequestTimeoutSec = 30
	}
	if g.RequestsPerSecond == 0 {
		g.RequestsPerSecond = 10
	}
	if g.RateLimitFallbackSec == 0 {
		g.RateLimitFallbackSec = 60
	}
	if g.MaxRedirects == 0 {
		g.MaxRedirects = 5
	}
	if g.ReposPerPage == 0 {
		g.ReposPerPage = 100
	}
	if g.FollowersPerPage == 0 {
		g.FollowersPerPage = 100
	}
	if g.TagRepoLimit == 0 {
		g.TagRepoLimit = 5
	} else if g.TagRepoLimit < 0 {
		g.TagRepoLimit = 0
	}
	if g.TagWorkers == 0 {
		g.TagWorkers = 4
	}
	if g.PinnedFallbackCount == 0 {
		g.PinnedFallbackCount = 6
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = "sqlite"
	}
	if c.Cache.SqlitePath == "" {
		c.Cache.SqlitePath = "portfolio.db"
	}
	if c.Cache.SnapshotKey == "" {
		c.Cache.SnapshotKey = "gh_portfolio_v1"
	}
	if c.Cache.TokenKey == "" {
		c.Cache.TokenKey = "gh_portfolio_etags_v1"
	}
	if c.Cache.SnapshotTTLMin == 0 {
		c.Cache.SnapshotTTLMin = 60
	}

	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "snapshot-history-group"
	}
	if c.Kafka.Producer.TopicSnapshot == "" {
		c.Kafka.Producer.TopicSnapshot = "portfolio.snapshot"
	}

	if c.Recovery.TickIntervalMs == 0 {
		c.Recovery.TickIntervalMs = 1000
	}
	if c.Recovery.RetryIntervalSec == 0 {
		c.Recovery.RetryIntervalSec = 30
	}

	if c.Ui.Port == 0 {
		c.Ui.Port = 8080
	}
	if c.Ui.ShutdownTimeout == 0 {
		c.Ui.ShutdownTimeout = 5
	}
}
