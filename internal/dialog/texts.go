package dialog

import (
	"fmt"
	"strings"

	"github.com/pamonha-express/server/internal/order"
)

const (
	mainMenuText = "Olá! 😊 Que bom ter você por aqui! *Por favor, escolha uma opção:*\n" +
		"1. Ver Cardápio\n" +
		"2. Fazer um Pedido\n" +
		"3. Ver meu pedido\n" +
		"4. Cancelar Atendimento"

	modifyMenuText = "\n*O que você gostaria de fazer?*\n" +
		"1. Alterar a quantidade de um item\n" +
		"2. Excluir um item do pedido\n" +
		"3. Cancelar o pedido inteiro\n" +
		"4. Voltar ao menu principal"

	evaluationPromptText   = "Conversa encerrada. Se precisar de algo, estamos à disposição! 👋\n\nGostaria de responder a um breve questionário de avaliação?"
	evaluationRepromptText = "Desculpe, não entendi. Por favor, responda com 'Sim' ou 'Não'."
	declineText            = "Tudo bem! Agradecemos pelo seu tempo. Até logo! 👋\n\n Para iniciar um novo atendimento, envie uma nova mensagem."
	questionnaireDoneText  = "Obrigado por suas respostas e pelo seu feedback! Sua opinião é muito importante. Até logo! 👋\n\n Para iniciar um novo atendimento, envie uma nova mensagem."
	questionRepromptText   = "Desculpe, não entendi. Por favor, escolha uma das opções abaixo."
	noCycleText            = "Não há nenhum atendimento em andamento. Envie uma mensagem para iniciar um novo atendimento."

	engineFailureText = "Um momento, por favor, estou com uma instabilidade no sistema."

	orderPromptText      = "Por favor, informe o número do item que deseja pedir ou digite *9* para voltar ao menu principal e ver o cardápio."
	unknownItemText      = "Não temos um item com esse número. Por favor, escolha um item válido do cardápio ou digite *9* para voltar ao menu principal."
	itemNotNumberText    = "Por favor, escolha um item válido do cardápio ou digite *9* para voltar ao menu principal."
	invalidQuantityText  = "Quantidade inválida. Por favor, insira um número maior que zero."
	quantityNotNumText   = "Por favor, informe apenas a quantidade em números."
	nextItemText         = "Por favor, escolha o próximo item do cardápio."
	askNameText          = "Qual o seu nome? Só para deixar registrado aqui no sistema."
	askMoreRepromptText  = "Desculpa, não entendi. Deseja adicionar mais itens?"
	emptyOrderText       = "Você ainda não realizou um pedido."
	orderCancelledText   = "Seu pedido foi cancelado com sucesso."
	invalidOptionText    = "Opção inválida.\n"
	invalidLineText      = "Número inválido. Por favor, escolha um número da lista."
	lineNotNumberText    = "Por favor, informe um número válido."
	editNotNumberText    = "Por favor, informe um número válido para a quantidade."
	quantityChangedText  = "Quantidade alterada com sucesso!"
	orderNowEmptyText    = "\nSeu pedido agora está vazio."
	chooseLineToEditText = "*Qual item você deseja alterar a quantidade?*"
	chooseLineToDelText  = "*Qual item você deseja excluir do pedido?*"
)

var (
	yesNoButtons = []Button{{Label: "Sim", Value: "sim"}, {Label: "Não", Value: "nao"}}

	evaluationRepromptButtons = []Button{
		{Label: "Sim, quero responder", Value: "sim"},
		{Label: "Não, obrigado(a)", Value: "nao"},
	}
)

// keyword sets, matched against the trimmed lowercase input
var (
	kwViewMenu    = keywords("1", "um", "cardapio", "cardápio", "ver cardapio", "ver cardápio", "menu")
	kwPlaceOrder  = keywords("2", "dois", "pedido", "fazer pedido", "pedir", "fazer um pedido")
	kwViewOrder   = keywords("3", "três", "tres", "ver pedido", "meu pedido", "ver meu pedido", "acompanhar", "status")
	kwCancel      = keywords("4", "quatro", "cancelar", "cancelar atendimento")
	kwBack        = keywords("9", "nove", "voltar")
	kwYes         = keywords("sim", "s", "quero", "claro", "pode", "pode ser")
	kwNo          = keywords("não", "nao", "n", "nao quero", "não quero")
	kwFinish      = keywords("finalizar", "fechar")
	kwEditQty     = keywords("1", "um", "alterar", "quantidade", "alterar quantidade")
	kwDeleteLine  = keywords("2", "dois", "excluir", "remover", "excluir item")
	kwCancelOrder = keywords("3", "três", "tres", "cancelar", "cancelar tudo", "cancelar pedido")
	kwModifyBack  = keywords("4", "quatro", "voltar", "menu principal")
)

type keywordSet map[string]struct{}

func keywords(words ...string) keywordSet {
	set := make(keywordSet, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func (k keywordSet) has(s string) bool {
	_, ok := k[s]
	return ok
}

func catalogText(c *order.Catalog) string {
	return "📋 *Cardápio*\n\n" + strings.Join(c.Lines(), "\n") +
		"\n\nPara fazer um pedido, informe o número do item desejado.\n\n Ou digite *9* para voltar ao menu principal."
}

func itemChosenText(item order.Item) string {
	return fmt.Sprintf("Você escolheu %s por %s.\nQuantas unidades deseja?", item.Name, order.FormatBRL(item.Price))
}

func addedText(qty int, name string) string {
	return fmt.Sprintf("Adicionado %dx %s ao pedido.\nDeseja adicionar mais itens?", qty, name)
}

func confirmedText(name string) string {
	return fmt.Sprintf("Obrigado, %s! Seu pedido foi recebido com sucesso! Obrigado por escolher a Pamonha Express! 😊\n\n%s", name, mainMenuText)
}

func removedText(name string) string {
	return fmt.Sprintf("Item '%s' removido do seu pedido.", name)
}

func newQuantityText(name string) string {
	return fmt.Sprintf("Qual a nova quantidade para *%s*?", name)
}

func lineListText(header string, l *order.Ledger, withQty bool) string {
	parts := []string{header}
	for i, line := range l.Lines() {
		if withQty {
			parts = append(parts, fmt.Sprintf("%d. %dx %s", i+1, line.Quantity, line.ItemName))
		} else {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, line.ItemName))
		}
	}
	return strings.Join(parts, "\n")
}
