package dialog

import (
	"fmt"
	"html"
	"strings"

	"shopbot/storefront"

	"github.com/shopspring/decimal"
)

const (
	msgWelcome          = "Добро пожаловать в рыбный магазин! 🐟\nВыберите товар для подробной информации:"
	msgPickProduct      = "🐟 Выберите товар для подробной информации:"
	msgCatalogEmpty     = "К сожалению товары временно недоступны. Попробуйте позже."
	msgProductLoadFail  = "Произошла ошибка при загрузке товара. Попробуйте позже."
	msgCartEmpty        = "🧺 Ваша корзина пока пуста."
	msgCartLoadFail     = "Не удалось загрузить корзину. Попробуйте позже."
	msgItemAdded        = "🛒 Товар добавлен в корзину!"
	msgItemAddFail      = "Не удалось добавить товар в корзину. Попробуйте позже."
	msgItemRemoved      = "Товар удалён."
	msgItemRemoveFail   = "Не удалось удалить товар. Попробуйте позже."
	msgAskEmail         = "Пожалуйста, введите вашу почту текстом:"
	msgEmailInvalid     = "Это не похоже на email. Попробуйте ещё раз:"
	msgEmailThanksFmt   = "Спасибо! Мы свяжемся с вами на %s."

	btnAddToCart  = "🛒 Добавить в корзину"
	btnMyCart     = "🧺 Моя корзина"
	btnBackToList = "⬅️ Вернуться к списку"
	btnBackToMenu = "⬅️ В меню"
	btnPay        = "💳 Оплатить"
)

// productButtons lists one catalog button per product. The cart button
// is only attached on the greeting screen.
func productButtons(products []storefront.Product, withCart bool) [][]Button {
	rows := make([][]Button, 0, len(products)+1)
	for _, p := range products {
		rows = append(rows, []Button{{
			Text:    p.Title,
			Token:   TokenProduct,
			Payload: p.DocumentID,
		}})
	}
	if withCart {
		rows = append(rows, []Button{{Text: btnMyCart, Token: TokenMyCart}})
	}
	return rows
}

func productCaption(p storefront.Product) string {
	return fmt.Sprintf(
		"🐟 <b>%s</b>\n\n💰 <b>Цена:</b> %s руб./кг\n\n📝 <b>Описание:</b>\n%s\n\n",
		html.EscapeString(p.Title),
		p.Price,
		html.EscapeString(p.Description),
	)
}

func productKeyboard(p storefront.Product) [][]Button {
	return [][]Button{
		{{Text: btnAddToCart, Token: TokenAddToCart, Payload: p.DocumentID}},
		{{Text: btnMyCart, Token: TokenMyCart}},
		{{Text: btnBackToList, Token: TokenBackToMenu}},
	}
}

// renderCart formats the cart as HTML. Lines without a price are shown
// without a subtotal and excluded from the total.
func renderCart(items []storefront.CartItem) string {
	if len(items) == 0 {
		return msgCartEmpty
	}

	lines := []string{"🧺 <b>Ваша корзина:</b>\n"}
	var total *decimal.Decimal

	for _, item := range items {
		title := html.EscapeString(item.Title)
		if item.Price != nil {
			amount := decimal.NewFromFloat(item.Amount)
			lineTotal := item.Price.Mul(amount)
			if total == nil {
				total = &lineTotal
			} else {
				sum := total.Add(lineTotal)
				total = &sum
			}
			lines = append(lines, fmt.Sprintf(
				"• %s: %v кг × %s руб. = <b>%s</b> руб.",
				title, item.Amount, item.Price, lineTotal,
			))
		} else {
			lines = append(lines, fmt.Sprintf("• %s: %v кг", title, item.Amount))
		}
	}

	if total != nil {
		lines = append(lines, fmt.Sprintf("\n<b>Итого:</b> %s руб.", total))
	}

	return strings.Join(lines, "\n")
}

func cartKeyboard(items []storefront.CartItem) [][]Button {
	rows := make([][]Button, 0, len(items)+2)
	for _, item := range items {
		rows = append(rows, []Button{{
			Text:    "❌ Удалить: " + item.Title,
			Token:   TokenRemoveItem,
			Payload: item.DocumentID,
		}})
	}
	rows = append(rows,
		[]Button{{Text: btnBackToMenu, Token: TokenBackToMenu}},
		[]Button{{Text: btnPay, Token: TokenPay}},
	)
	return rows
}

func cartFallbackKeyboard() [][]Button {
	return [][]Button{{{Text: btnBackToMenu, Token: TokenBackToMenu}}}
}
