package models

type TrelloCard struct {
	ID        string `json:"id"`
	IDShort   int    `json:"idShort"`
	ShortLink string `json:"shortLink"`
	Name      string `json:"name"`
	IDList    string `json:"idList"`
}

type TrelloAttachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}
