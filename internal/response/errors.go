package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Attempts ──────────────────────────────────────────────────────
	ErrInvalidMode        ErrCode = "INVALID_MODE"
	ErrSectionOrder       ErrCode = "SECTION_ORDER"
	ErrAlreadyCompleted   ErrCode = "ALREADY_COMPLETED"
	ErrMissingBlueprint   ErrCode = "MISSING_BLUEPRINT"
	ErrAnswerTypeMismatch ErrCode = "ANSWER_TYPE_MISMATCH"

	// ─── Import pipeline ───────────────────────────────────────────────
	ErrQueueDispatchFailed  ErrCode = "QUEUE_DISPATCH_FAILED"
	ErrStorage              ErrCode = "STORAGE_ERROR"
	ErrImportNotReviewable  ErrCode = "IMPORT_NOT_REVIEWABLE"
	ErrJobKeyRequired       ErrCode = "JOB_KEY_REQUIRED"
	ErrJobNotRegistered     ErrCode = "JOB_NOT_REGISTERED"

	// ─── Uploads ───────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email atau kata sandi salah."
	case ErrEmailTaken:
		return "Email sudah terdaftar."
	case ErrSessionActive:
		return "Anda sudah login di perangkat lain."
	case ErrSessionInvalidated:
		return "Sesi Anda telah berakhir. Silakan login kembali."
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrAdminAccessOnly:
		return "Sumber daya ini terbatas untuk administrator."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrConflict:
		return "Sumber daya sudah ada."

	// ─── Attempts ──────────────────────────────────────────────────────
	case ErrInvalidMode:
		return "Jenis sesi tidak sesuai untuk operasi ini."
	case ErrSectionOrder:
		return "Subtes ini belum dapat dimulai."
	case ErrAlreadyCompleted:
		return "Sesi ini sudah selesai."
	case ErrMissingBlueprint:
		return "Struktur tryout untuk sesi ini tidak ditemukan."
	case ErrAnswerTypeMismatch:
		return "Format jawaban tidak sesuai dengan jenis soal."

	// ─── Import pipeline ───────────────────────────────────────────────
	case ErrQueueDispatchFailed:
		return "Gagal mengirim tugas impor ke antrean."
	case ErrStorage:
		return "Gagal mengakses berkas di penyimpanan."
	case ErrImportNotReviewable:
		return "Impor ini belum memiliki draf soal untuk disimpan."
	case ErrJobKeyRequired:
		return "Parameter job diperlukan."
	case ErrJobNotRegistered:
		return "Tidak ada handler untuk job tersebut."

	// ─── Uploads ───────────────────────────────────────────────────────
	case ErrFileRequired:
		return "Unggah file diperlukan."
	case ErrUnsupportedFile:
		return "Jenis file tidak didukung."
	case ErrFileTooLarge:
		return "Ukuran file melebihi batas."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
