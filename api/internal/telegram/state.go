package telegram

import "time"

const (
	defaultTimeout   = 120 * time.Second
	defaultMaxFileMB = 20

	// поле снегопада: ширина/высота в символах моноширинного блока
	snowWidth  = 18
	snowHeight = 8
	snowFlakes = 14
	// Telegram режет частые правки одного сообщения, чаще раза в секунду не редактируем
	snowTick = time.Second
)
