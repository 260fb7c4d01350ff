package model

// Image é uma imagem de oferta pronta para ir ao modelo.
type Image struct {
	Filename string
	MIME     string
	Data     []byte
	// SourceURL é preenchido quando a imagem veio de um link.
	SourceURL string
}
