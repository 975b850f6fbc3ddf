package models

// Upload описывает входящую загрузку так, как её заявил клиент и подписал эмитент.
type Upload struct {
	Name        string
	Size        string // десятичная строка из Content-Length, в том виде, в каком она подписана
	ContentType string
	Token       string
}

// ObjectInfo — то, что известно о сохранённом объекте без чтения его содержимого.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
	// TypeKnown ложен, если sidecar-файл отсутствует или не читается.
	TypeKnown bool
}

// Usage агрегирует занятое место для health-check'ов.
type Usage struct {
	Objects    int
	TotalBytes int64
}
