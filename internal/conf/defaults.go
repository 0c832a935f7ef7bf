package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Remote table ids used by the live document.
const (
	DefaultTableDrugs     = "DB_Drugs"
	DefaultTableRequests  = "DB_Requests"
	DefaultTableCities    = "DB_Cities"
	DefaultTableInbox     = "DB_Supply_Inbox"
	DefaultTableInventory = "DB_Inventory"
	DefaultTableFeedback  = "DB_Feedback"
	DefaultTableWishlist  = "DB_Wishlist"
)

// setDefaultConfig sets the default values for every configuration key.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Remote table store
	viper.SetDefault("coda.apikey", "")
	viper.SetDefault("coda.apikeyfile", "")
	viper.SetDefault("coda.docid", "")
	viper.SetDefault("coda.docidfile", "")
	viper.SetDefault("coda.baseurl", "https://coda.io/apis/v1")
	viper.SetDefault("coda.timeout", 0)
	viper.SetDefault("coda.ratelimit", 5.0)
	viper.SetDefault("coda.burst", 10)
	viper.SetDefault("coda.useragent", "drugfinder")
	viper.SetDefault("coda.tables.drugs", DefaultTableDrugs)
	viper.SetDefault("coda.tables.requests", DefaultTableRequests)
	viper.SetDefault("coda.tables.cities", DefaultTableCities)
	viper.SetDefault("coda.tables.inbox", DefaultTableInbox)
	viper.SetDefault("coda.tables.inventory", DefaultTableInventory)
	viper.SetDefault("coda.tables.feedback", DefaultTableFeedback)
	viper.SetDefault("coda.tables.wishlist", DefaultTableWishlist)

	// Mail
	viper.SetDefault("mail.host", "smtp.gmail.com")
	viper.SetDefault("mail.port", 587)
	viper.SetDefault("mail.account", "")
	viper.SetDefault("mail.accountfile", "")
	viper.SetDefault("mail.password", "")
	viper.SetDefault("mail.passwordfile", "")
	viper.SetDefault("mail.fromname", "藥品特搜網")
	viper.SetDefault("mail.subject", "【藥品特搜網】診所身分驗證碼")
	viper.SetDefault("mail.timeout", 30*time.Second)

	viper.SetDefault("verification.maxcodeage", 0)

	// Cache freshness windows
	viper.SetDefault("cache.cities", time.Hour)
	viper.SetDefault("cache.drugs", 60*time.Second)
	viper.SetDefault("cache.inventory", 30*time.Second)
	viper.SetDefault("cache.requests", 10*time.Second)
	viper.SetDefault("cache.feedback", 5*time.Second)
	viper.SetDefault("cache.pending", 60*time.Second)
	viper.SetDefault("cache.writesettle", 2*time.Second)

	// HTTP server
	viper.SetDefault("server.host", "")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.bodylimit", "1M")
	viper.SetDefault("server.alloworigins", []string{"*"})
	viper.SetDefault("server.sessionttl", 2*time.Hour)
	viper.SetDefault("server.securecookie", false)
	viper.SetDefault("server.metrics", true)

	// Logging
	viper.SetDefault("logging.defaultlevel", "info")
	viper.SetDefault("logging.timezone", "Asia/Taipei")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.fileoutput.enabled", false)
	viper.SetDefault("logging.fileoutput.path", "logs/drugfinder.log")
	viper.SetDefault("logging.fileoutput.maxsize", 50)
	viper.SetDefault("logging.fileoutput.maxage", 30)
	viper.SetDefault("logging.fileoutput.maxrotatedfiles", 5)
	viper.SetDefault("logging.fileoutput.compress", false)
	viper.SetDefault("logging.fileoutput.level", "info")

	// Telemetry
	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "production")
	viper.SetDefault("sentry.samplerate", 1.0)

	// Submission journal
	viper.SetDefault("journal.enabled", false)
	viper.SetDefault("journal.driver", "sqlite")
	viper.SetDefault("journal.path", "drugfinder-journal.db")
	viper.SetDefault("journal.dsn", "")
	viper.SetDefault("journal.retention", 30*24*time.Hour)

	viper.SetDefault("notification.reviewers", []string{})
	viper.SetDefault("notification.timeout", 10*time.Second)
}
