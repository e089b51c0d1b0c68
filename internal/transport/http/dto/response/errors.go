package response

var (
	ErrInvalidRequestFormat = ErrorResponse{Detail: "Invalid request format"}
	ErrNotAuthenticated     = ErrorResponse{Detail: "Not authenticated"}
	ErrInvalidCredentials   = ErrorResponse{Detail: "Invalid credentials"}
	ErrInvalidID            = ErrorResponse{Detail: "Invalid id"}
	ErrIDsNotList           = ErrorResponse{Detail: "ids должен быть списком"}
	ErrMachineNotFound      = ErrorResponse{Detail: "Coffee machine not found"}
	ErrSpecNotFound         = ErrorResponse{Detail: "Spec not found"}
	ErrSpecExists           = ErrorResponse{Detail: "Spec already exists"}
	ErrDesignImageNotFound  = ErrorResponse{Detail: "Design image not found"}
	ErrInvalidPrice         = ErrorResponse{Detail: "Некорректное значение цены"}
	ErrUnsupportedExport    = ErrorResponse{Detail: "Поддерживаемые форматы: csv, xlsx"}
	ErrUnsupportedImport    = ErrorResponse{Detail: "Поддерживаются только CSV или XLSX файлы"}
	ErrFileRequired         = ErrorResponse{Detail: "file is required"}
	ErrSeafileNotConfigured = ErrorResponse{Detail: "Seafile is not configured"}
	ErrOzonNotConfigured    = ErrorResponse{Detail: "Ozon is not configured"}
	ErrOzonUnavailable      = ErrorResponse{Detail: "Ozon is unavailable"}
	ErrInternal             = ErrorResponse{Detail: "Internal server error"}
)
