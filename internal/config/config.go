package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Birthday-Bot/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName        = "Go Birthday Bot"
	AppID          = "com.github.tartampluch.go-birthday-bot"
	AppCommand     = "go-birthday-bot"
	KeyringService = "com.github.tartampluch.go-birthday-bot"
	KeyringToken   = "telegram-token"
	LogFileName    = "bot.log"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs and the settings file.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Commands, Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	CmdServe  = "serve"
	CmdSweep  = "sweep"
	CmdImport = "import"
	CmdToken  = "token"
	CmdInit   = "init"

	CmdDescServe  = "Run the Telegram bot, the daily reminder trigger and the calendar feed"
	CmdDescSweep  = "Run one reminder sweep now and print the number of sent notifications"
	CmdDescImport = "Import birthdays from a vCard file or URL for one subscriber"
	CmdDescToken  = "Store the Telegram bot token in the OS keyring"
	CmdDescInit   = "Write a settings file with the default values"

	FlagConfig   = "config"
	FlagDebug    = "debug"
	FlagOwner    = "owner"
	FlagFile     = "file"
	FlagURL      = "url"
	FlagUser     = "user"
	FlagPassword = "password"

	FlagDescConfig   = "Path to the YAML settings file"
	FlagDescDebug    = "Enable debug logging"
	FlagDescOwner    = "Telegram chat id that owns the imported records"
	FlagDescFile     = "Path to a .vcf file"
	FlagDescURL      = "CardDAV or WebDAV URL of a vCard export"
	FlagDescUser     = "HTTP Basic Auth user for --url"
	FlagDescPassword = "HTTP Basic Auth password for --url (keyring is used when empty)"

	MsgSweepOutput  = "sent %d notification(s)\n"
	MsgImportOutput = "imported %d record(s)\n"
	MsgTokenPrompt  = "Enter the Telegram bot token: "
	MsgTokenSaved   = "token saved to the OS keyring\n"
	MsgInitOutput   = "settings written to %s\n"

	AppUsage         = "Birthday and holiday reminders delivered through a Telegram bot"
	MsgVersionOutput = "%s %s (commit %s, built %s) %s/%s\n"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	// SentinelYear marks a stored date whose year is not meaningful.
	SentinelYear = 1900

	// DefaultLeapYear is used to validate month/day pairs independently of the
	// stored year, so that --02-29 stays representable.
	DefaultLeapYear = 2000

	DefaultSettingsPath   = "config.yaml"
	DefaultDriver         = DriverSQLite
	DefaultSQLitePath     = "birthdays.db"
	DefaultLanguage       = "ru"
	DefaultRemindCron     = "0 9 * * *"
	DefaultUTCOffsetHours = 3
	DefaultZoneName       = "MSK"
	DefaultFeedListen     = ""
	DefaultUpdateTimeout  = 60

	// MinNameLength is the shortest accepted subject name.
	MinNameLength = 2

	// SkipInput is what a user sends to leave an optional field empty.
	SkipInput = "-"

	// HandlePrefix decorates Telegram usernames.
	HandlePrefix = "@"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// JobDailyReminders names the daily sweep in logs.
	JobDailyReminders = "daily-reminders"

	// JobFeedRefresh re-renders the calendar feeds between daily sweeps.
	JobFeedRefresh         = "feed-refresh"
	DefaultFeedRefreshCron = "*/15 * * * *"
)

// SupportedLanguages defines the list of available message languages (ISO 639-1).
var SupportedLanguages = []string{"ru", "en"}

// -----------------------------------------------------------------------------
// Event Categories
// -----------------------------------------------------------------------------

const (
	CategoryBirthday = "birthday"
	CategoryHoliday  = "holiday"
	CategoryOther    = "other"
)

// -----------------------------------------------------------------------------
// Environment Variables
// -----------------------------------------------------------------------------

const (
	EnvBotToken       = "BOT_TOKEN"
	EnvDBDriver       = "DATABASE_DRIVER"
	EnvDBURL          = "DATABASE_URL"
	EnvLanguage       = "BOT_LANGUAGE"
	EnvRemindCron     = "REMIND_CRON"
	EnvUTCOffsetHours = "UTC_OFFSET_HOURS"
	EnvFeedListen     = "FEED_LISTEN"
	EnvFeedPublicURL  = "FEED_PUBLIC_URL"
	EnvFeedSecret     = "FEED_SECRET"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

// Reminder texts. Each due offset has its own template per category; birthday
// templates have an "_age" variant used when the age is known.
const (
	TKeyBirthdayToday       = "reminder_birthday_today"
	TKeyBirthdayTodayAge    = "reminder_birthday_today_age"
	TKeyBirthdayTomorrow    = "reminder_birthday_tomorrow"
	TKeyBirthdayTomorrowAge = "reminder_birthday_tomorrow_age"
	TKeyBirthdayIn3Days     = "reminder_birthday_in_3_days"
	TKeyBirthdayIn3DaysAge  = "reminder_birthday_in_3_days_age"
	TKeyBirthdayIn7Days     = "reminder_birthday_in_7_days"
	TKeyBirthdayIn7DaysAge  = "reminder_birthday_in_7_days_age"

	TKeyHolidayToday    = "reminder_holiday_today"
	TKeyHolidayTomorrow = "reminder_holiday_tomorrow"
	TKeyHolidayIn3Days  = "reminder_holiday_in_3_days"
	TKeyHolidayIn7Days  = "reminder_holiday_in_7_days"

	TKeyOtherToday    = "reminder_other_today"
	TKeyOtherTomorrow = "reminder_other_tomorrow"
	TKeyOtherIn3Days  = "reminder_other_in_3_days"
	TKeyOtherIn7Days  = "reminder_other_in_7_days"

	// ICS summaries.
	TKeyEvtSummaryBirthday = "event_summary_birthday"
	TKeyEvtSummaryHoliday  = "event_summary_holiday"
	TKeyEvtSummaryOther    = "event_summary_other"
)

// Conversation texts.
const (
	TKeyWelcome          = "bot_welcome"
	TKeyHelp             = "bot_help"
	TKeyUnknownCommand   = "bot_unknown_command"
	TKeyCancelled        = "bot_cancelled"
	TKeyNothingToCancel  = "bot_nothing_to_cancel"
	TKeyAskCategory      = "bot_ask_category"
	TKeyBadCategory      = "bot_bad_category"
	TKeyCategoryBirthday = "bot_category_birthday"
	TKeyCategoryHoliday  = "bot_category_holiday"
	TKeyCategoryOther    = "bot_category_other"
	TKeyAskName          = "bot_ask_name"
	TKeyAskEventName     = "bot_ask_event_name"
	TKeyNameTooShort     = "bot_name_too_short"
	TKeyAskBirthDate     = "bot_ask_birth_date"
	TKeyAskEventDate     = "bot_ask_event_date"
	TKeyBadDate          = "bot_bad_date"
	TKeyFutureDate       = "bot_future_date"
	TKeyAskHandle        = "bot_ask_handle"
	TKeySaved            = "bot_saved"
	TKeySaveFailed       = "bot_save_failed"
	TKeyListEmpty        = "bot_list_empty"
	TKeyListHeader       = "bot_list_header"
	TKeyListItem         = "bot_list_item"
	TKeyListFooter       = "bot_list_footer"
	TKeyWhenToday        = "bot_when_today"
	TKeyWhenTomorrow     = "bot_when_tomorrow"
	TKeyWhenInDays       = "bot_when_in_days"
	TKeyAskDeleteIndex   = "bot_ask_delete_index"
	TKeyAskEditIndex     = "bot_ask_edit_index"
	TKeyIndexItem        = "bot_index_item"
	TKeyBadIndex         = "bot_bad_index"
	TKeyNotANumber       = "bot_not_a_number"
	TKeyDeleted          = "bot_deleted"
	TKeyDeleteFailed     = "bot_delete_failed"
	TKeyAskNewName       = "bot_ask_new_name"
	TKeyAskNewDate       = "bot_ask_new_date"
	TKeyUpdated          = "bot_updated"
	TKeyUpdateFailed     = "bot_update_failed"
	TKeyFetchFailed      = "bot_fetch_failed"
	TKeyCheckStarted     = "bot_check_started"
	TKeyCheckDone        = "bot_check_done"
	TKeyCheckFailed      = "bot_check_failed"
	TKeyCalendarURL      = "bot_calendar_url"
	TKeyCalendarDisabled = "bot_calendar_disabled"
)

// -----------------------------------------------------------------------------
// Bot Commands
// -----------------------------------------------------------------------------

const (
	CommandStart    = "start"
	CommandHelp     = "help"
	CommandAdd      = "add"
	CommandList     = "list"
	CommandDelete   = "delete"
	CommandEdit     = "edit"
	CommandCheck    = "check"
	CommandCalendar = "calendar"
	CommandCancel   = "cancel"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go Birthday Bot//Engine//EN"
	ICalCalName   = "Birthdays"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"

	// iCal/vCard Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRRule       = "RRULE"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"
	PropCategories  = "CATEGORIES"

	VCardBDAY = "BDAY"
	VCardFN   = "FN"

	DefaultICalRefresh = 1 * time.Hour

	// FormatAlarmTrigger renders a "days before" ISO8601 duration.
	FormatAlarmTrigger = "-P%dD"
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	// DateFormatStored is the textual date exchanged with the store.
	DateFormatStored = "2006-01-02"

	// Display layouts used in reminder texts and listings.
	DateFormatDisplay       = "02.01.2006"
	DateFormatDisplayNoYear = "02.01"

	// User input layouts. Single-digit day and month are accepted.
	DateFormatInput       = "2.1.2006"
	DateFormatInputNoYear = "2.1"

	// Date layouts used for parsing vCard BDAY fields
	DateFormatFullDash  = "2006-01-02"
	DateFormatFullBasic = "20060102"
	DateFormatRFC3339   = time.RFC3339
	DateFormatFullT     = "2006-01-02T15:04:05Z"
	DateFormatNoYearD   = "--01-02"
	DateFormatNoYearB   = "--0102"

	// Stored date scan format.
	FormatStoredScan = "%d-%d-%d"
	FormatStoredDate = "%04d-%02d-%02d"

	// Feed keys and UIDs.
	FormatFeedName = "%s|%d"
	FormatUIDName  = "%d|%d|%s"
	FormatFeedPath = "%s/calendars/%s"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 256 * 1024 * 1024 // 256MB
	MaxVCardErrors      = 1000
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteFeed           = "/calendars/{key}"
	PathValueKey        = "key"
	FeedExtension       = ".ics"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrInvalidDate      = "invalid calendar date"
	ErrDateParse        = "unable to parse date"
	ErrFutureDate       = "date is in the future"
	ErrBulkRead         = "failed to read records for sweep"
	ErrRender           = "failed to render reminder"
	ErrSend             = "failed to send message"
	ErrNoTemplate       = "no reminder template for category and offset"
	ErrLocNotInit       = "localizer not initialized"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrTranslate        = "failed to translate message"
	ErrNotFound         = "record not found"
	ErrStoreOpen        = "failed to open store"
	ErrStoreMigrate     = "failed to migrate store schema"
	ErrStoreQuery       = "store query failed"
	ErrStoreScan        = "failed to scan store row"
	ErrStoreClose       = "failed to close store"
	ErrDriverUnsupport  = "configuration error: unsupported database driver"
	ErrTokenMissing     = "configuration error: bot token is not set (env, settings or keyring)"
	ErrSettingsRead     = "failed to read settings file"
	ErrSettingsParse    = "failed to parse settings file"
	ErrSettingsWrite    = "failed to write settings file"
	ErrSettingsPath     = "settings path is empty"
	ErrSettingsExists   = "settings file already exists"
	ErrBadOffset        = "configuration error: UTC offset must be between -12 and 14 hours"
	ErrBadCron          = "configuration error: invalid cron expression"
	ErrBotInit          = "failed to initialize Telegram bot"
	ErrOwnerRequired    = "owner id is required"
	ErrTokenEmpty       = "token is empty"
	ErrSourceRequired   = "either --file or --url is required"
	ErrServerStartup    = "server startup failed"
	ErrListenRequired   = "feed listen address is empty"
	ErrServerShutdown   = "server shutdown failed"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrVCardParse       = "failed to parse vCard stream"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrKeyring          = "keyring access failed"
	ErrFeedRefresh      = "failed to refresh calendar feeds"
	ErrSchedulerAddJob  = "failed to register scheduled job"
	ErrUnexpectedUpdate = "unexpected update"
	ErrFetchRequest     = "failed to create request"
	ErrFetchNetwork     = "network error during fetch"
	ErrFetchStatus      = "server returned unexpected status"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgNotFound     = "Calendar not found"
)

// -----------------------------------------------------------------------------
// Fallbacks & Log Messages
// -----------------------------------------------------------------------------

const (
	FallbackName = "Unknown"

	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	MsgAppStarting    = "Starting application"
	MsgAppStop        = "Application stopped gracefully"
	MsgCtxCancel      = "Context cancelled, shutting down"
	MsgBotAuthorized  = "Authorized on Telegram account"
	MsgBotStop        = "Telegram update loop stopped"
	MsgCommand        = "Command received"
	MsgSweepStarted   = "Reminder sweep started"
	MsgSweepDone      = "Reminder sweep finished"
	MsgSweepNoRecords = "No records to check"
	MsgSweepManual    = "Manual reminder sweep requested"
	MsgSkippedRecord  = "Skipping record with invalid date"
	MsgNotifSent      = "Reminder sent"
	MsgNotifFailed    = "Reminder not delivered"
	MsgSkippedCard    = "Skipping malformed vCard"
	MsgSkippedDate    = "Skipping invalid date format"
	MsgImportDone     = "vCard import finished"
	MsgGenSuccess     = "Calendar generation successful"
	MsgFeedsRefreshed = "Calendar feeds refreshed"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgCacheUpdated   = "Calendar cache updated"
	MsgSchedulerStart = "Scheduler started"
	MsgSchedulerStop  = "Scheduler stopped"
	MsgJobAdded       = "Scheduled job registered"
	MsgJobDone        = "Scheduled job finished"
	MsgJobFailed      = "Scheduled job failed"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleBadName  = "Skipping malformed locale filename"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
	MsgStoreOpened    = "Store opened"
	MsgStoreMigrated  = "Store column added"
	MsgRecordAdded    = "Record added"
	MsgRecordUpdated  = "Record updated"
	MsgRecordDeleted  = "Record deleted"
	MsgTokenKeyring   = "Bot token loaded from keyring"
	MsgPassFail       = "Password retrieval failed (might be empty)"
	MsgEnvFileMissing = "No .env file loaded"
	MsgLogWarning     = "Warning: %s at %s: %v\n"
	MsgFetchStart     = "Initiating vCard download"
	MsgFetchBadStatus = "Server returned error status"
	MsgFetchOK        = "vCards downloading"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyListen    = "listen"
	LogKeyUser      = "user"
	LogKeyOwner     = "owner"
	LogKeyRecord    = "record_id"
	LogKeyCategory  = "category"
	LogKeyDays      = "days_until"
	LogKeyDate      = "date"
	LogKeyDriver    = "driver"
	LogKeyColumn    = "column"
	LogKeyCommand   = "command"
	LogKeyAccount   = "account"
	LogKeyCron      = "cron"
	LogKeyJob       = "job"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeyTotal     = "total"
	LogKeyDue       = "due"
	LogKeySent      = "sent"
	LogKeyFailed    = "failed"
	LogKeySkipped   = "skipped"
	LogKeyCount     = "count"
	LogKeyFeeds     = "feeds"
	LogKeySizeBytes = "size_bytes"
	LogKeyDuration  = "duration_ms"
	LogKeyNext      = "next_run"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompMain      = "main"
	CompEngine    = "engine"
	CompSweeper   = "sweeper"
	CompStore     = "store"
	CompBot       = "bot"
	CompScheduler = "scheduler"
	CompServer    = "server"
	CompFetcher   = "fetcher"
	CompImport    = "import"
	CompI18n      = "i18n"
	CompConfig    = "config"
)
