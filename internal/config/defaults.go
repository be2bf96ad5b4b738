package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration.
const (
	DefaultLogLevel = "info"

	DefaultHTTPAddr            = ":8501"
	DefaultHTTPReadTimeout     = 15 * time.Second
	DefaultHTTPWriteTimeout    = 60 * time.Second
	DefaultHTTPShutdownTimeout = 10 * time.Second

	DefaultDBDriver = "sqlite"
	DefaultDBDSN    = "storage.db"

	DefaultGatewayRequestTimeout = 30 * time.Second

	DefaultProfileCacheTTL     = time.Hour
	DefaultPlaceholderImageURL = "https://placehold.co/80x80/cccccc/000000?text=No+Img"
	DefaultDiagnosticMarker    = "คำสั่ง SQL ที่ใช้:"
)

// UserIDPlaceholder is replaced with the customer's user id in messages that name one.
const UserIDPlaceholder = "{user_id}"

// DefaultMessages mirrors the Thai operator texts of the dashboard.
var DefaultMessages = MessagesConfig{
	Title:              "🤖 Admin Dashboard: Review AI Responses",
	Subtitle:           "ตรวจสอบและแก้ไขคำตอบของ AI ก่อนส่งให้ลูกค้า",
	QueueHeader:        "ข้อความที่รอการอนุมัติ",
	NothingPending:     "ไม่มีข้อความที่รอการอนุมัติในขณะนี้",
	TaskHeader:         "ข้อความจากลูกค้า",
	CustomerMessage:    "ข้อความจากลูกค้า:",
	EditedResponse:     "คำตอบที่แก้ไข",
	SaveAndSend:        "บันทึกและส่งข้อความ",
	ApproveAndSend:     "อนุมัติและส่งข้อความ",
	Reject:             "ปฏิเสธ (ยกเลิกงาน)",
	RefreshProfiles:    "รีเฟรชโปรไฟล์",
	Sent:               "ส่งข้อความสำเร็จ! สถานะอัปเดตแล้ว",
	Rejected:           "งานถูกปฏิเสธแล้ว",
	SendFailed:         "เกิดข้อผิดพลาดในการส่งข้อความ LINE",
	MissingCredentials: "ไม่พบข้อมูล Channel API สำหรับผู้ใช้: " + UserIDPlaceholder,
	NotPending:         "งานนี้ถูกดำเนินการไปแล้ว",
	NotRecorded:        "ส่งข้อความถึงลูกค้าแล้ว แต่บันทึกสถานะไม่สำเร็จ กรุณาอย่าส่งซ้ำ",
	EmptyResponse:      "กรุณากรอกคำตอบก่อนส่ง",
	GeneralError:       "เกิดข้อผิดพลาด กรุณาลองใหม่อีกครั้ง",
}

// DefaultJobs are the scheduler jobs and their default schedules.
var DefaultJobs = map[string]JobConfig{
	"sql_maintenance":     {Enabled: false, Schedule: "0 0 4 * * *"},
	"profile_cache_reset": {Enabled: true, Schedule: "0 0 * * * *"},
	"pending_report":      {Enabled: true, Schedule: "0 */5 * * * *"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", false)

	v.SetDefault("http.addr", DefaultHTTPAddr)
	v.SetDefault("http.read_timeout", DefaultHTTPReadTimeout)
	v.SetDefault("http.write_timeout", DefaultHTTPWriteTimeout)
	v.SetDefault("http.shutdown_timeout", DefaultHTTPShutdownTimeout)
	v.SetDefault("http.admin_user", "")
	v.SetDefault("http.admin_password", "")

	v.SetDefault("database.driver", DefaultDBDriver)
	v.SetDefault("database.dsn", DefaultDBDSN)

	v.SetDefault("gateway.line_endpoint", "")
	v.SetDefault("gateway.telegram_server_url", "")
	v.SetDefault("gateway.request_timeout", DefaultGatewayRequestTimeout)

	v.SetDefault("review.diagnostic_marker", DefaultDiagnosticMarker)
	v.SetDefault("review.profile_cache_ttl", DefaultProfileCacheTTL)
	v.SetDefault("review.placeholder_image_url", DefaultPlaceholderImageURL)

	for name, job := range DefaultJobs {
		v.SetDefault("scheduler.jobs."+name+".enabled", job.Enabled)
		v.SetDefault("scheduler.jobs."+name+".schedule", job.Schedule)
	}

	v.SetDefault("messages.title", DefaultMessages.Title)
	v.SetDefault("messages.subtitle", DefaultMessages.Subtitle)
	v.SetDefault("messages.queue_header", DefaultMessages.QueueHeader)
	v.SetDefault("messages.nothing_pending", DefaultMessages.NothingPending)
	v.SetDefault("messages.task_header", DefaultMessages.TaskHeader)
	v.SetDefault("messages.customer_message", DefaultMessages.CustomerMessage)
	v.SetDefault("messages.edited_response", DefaultMessages.EditedResponse)
	v.SetDefault("messages.save_and_send", DefaultMessages.SaveAndSend)
	v.SetDefault("messages.approve_and_send", DefaultMessages.ApproveAndSend)
	v.SetDefault("messages.reject", DefaultMessages.Reject)
	v.SetDefault("messages.refresh_profiles", DefaultMessages.RefreshProfiles)
	v.SetDefault("messages.sent", DefaultMessages.Sent)
	v.SetDefault("messages.rejected", DefaultMessages.Rejected)
	v.SetDefault("messages.send_failed", DefaultMessages.SendFailed)
	v.SetDefault("messages.missing_credentials", DefaultMessages.MissingCredentials)
	v.SetDefault("messages.not_pending", DefaultMessages.NotPending)
	v.SetDefault("messages.not_recorded", DefaultMessages.NotRecorded)
	v.SetDefault("messages.empty_response", DefaultMessages.EmptyResponse)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
