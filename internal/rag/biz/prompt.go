package biz

import "strings"

// ContextSeparator 检索结果拼接为上下文时使用的分隔符。
const ContextSeparator = ","

const promptTemplate = `You are an expert providing factually accurate answers.
Use only the information from the context to generate your answer.
If the context doesn't contain relevant information say I don't know as context doesn't have much info.
Context: {context} Question: {user_query} Answer(only use the context for your answer)`

// BuildPrompt 将上下文与问题填入固定模板。
// 单次替换，上下文中出现的占位符不会被再次展开。
func BuildPrompt(context, question string) string {
	return strings.NewReplacer(
		"{context}", context,
		"{user_query}", question,
	).Replace(promptTemplate)
}
