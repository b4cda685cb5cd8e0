package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.BrazilianPortuguese

	// Purchase
	message.SetString(lang, PurchaseInvalidEvent, "Evento não encontrado.")
	message.SetString(lang, PurchaseInvalidPhone, "Informe o WhatsApp com DDI e DDD (10 a 15 dígitos).")
	message.SetString(lang, PurchaseStarted, "Pedido iniciado! Os ingressos serão enviados para %s.")
	message.SetString(lang, PurchaseTotal, "Total: %d x R$ %s = R$ %s")
	message.SetString(lang, PurchaseFailed, "Não foi possível iniciar a compra. Finalize pelo WhatsApp.")
	message.SetString(lang, PurchaseIntent, "Quero comprar %d ingresso(s) para %s (%s). Enviar para %s. Nome: %s")

	// Login
	message.SetString(lang, OTPInvalidPhone, "Telefone inválido. Use apenas números, com DDI e DDD.")
	message.SetString(lang, OTPCodeSent, "Código enviado para %s.")
	message.SetString(lang, OTPRequestFailed, "Não foi possível enviar o código: %s")
	message.SetString(lang, OTPInvalidCode, "Código inválido. Use de 3 a 6 números.")
	message.SetString(lang, OTPNoPending, "Solicite um código antes de verificar.")
	message.SetString(lang, OTPVerified, "Login confirmado.")
	message.SetString(lang, OTPNotOrganizer, "Login confirmado, mas este número não é de um organizador.")
	message.SetString(lang, OTPVerifyFailed, "Falha na verificação: %s")
	message.SetString(lang, OTPCancelled, "Login cancelado.")
	message.SetString(lang, SessionLoggedOut, "Sessão encerrada.")

	message.SetString(lang, BackendUnavailable, "serviço indisponível")

	// Validator
	message.SetString(lang, ValidatorEmpty, "Informe ou escaneie um código.")
	message.SetString(lang, ValidatorValid, "Ingresso válido: %s (evento %s)")
	message.SetString(lang, ValidatorValidBuyer, "Ingresso válido: %s (evento %s), comprador %s")
	message.SetString(lang, ValidatorInvalid, "Ingresso inválido: %s")
	message.SetString(lang, ValidatorUnknownReason, "desconhecido")
	message.SetString(lang, ValidatorFailed, "Falha ao validar: %s")

	// Catalog
	message.SetString(lang, PlaceholderName, "Em breve: novos eventos")
	message.SetString(lang, PlaceholderDescription, "Estamos atualizando a agenda. Volte em instantes.")
	message.SetString(lang, PlaceholderStatus, "Últimas unidades")

	// Views
	message.SetString(lang, GalleryAll, "Todas")
	message.SetString(lang, GalleryEmpty, "Nenhum evento encontrado.")
	message.SetString(lang, SheetBuy, "Comprar")
	message.SetString(lang, SheetSoldOut, "Esgotado")
	message.SetString(lang, SheetEdit, "Editar evento")
	message.SetString(lang, SheetMap, "Ver no mapa")
	message.SetString(lang, SheetPrice, "A partir de R$ %s")
	message.SetString(lang, StatusSoldOut, "Esgotado")
	message.SetString(lang, StatusLowStock, "Últimas unidades")
	message.SetString(lang, StatusComingSoon, "Em breve")
	message.SetString(lang, IndicatorOffline, "offline")
	message.SetString(lang, NavAdmin, "Painel")
	message.SetString(lang, NavValidator, "Validador")
	message.SetString(lang, NavLogin, "Entrar")
	message.SetString(lang, NavLogout, "Sair")
	message.SetString(lang, LoginPhone, "WhatsApp com DDD")
	message.SetString(lang, LoginCode, "Código recebido")
}
