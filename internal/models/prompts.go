package models

var (
	// TopicSelectorPromptTemplate asks the model to pick topics for the
	// latest query. Args: formatted history, formatted topic descriptions.
	TopicSelectorPromptTemplate = `You are reviewing a conversation to determine what topics are most relevant to answering the user's latest query.

Conversation so far:
%s

Available topics and descriptions:
%s

Return a list formatted like: ['topic1', 'topic2'].
Do NOT add any trailing whitespace, extra quotation marks, or code tags.
If none are relevant, return ['general'].`

	// AnswerPromptTemplate builds the grounded answer prompt.
	// Args: retrieved context, formatted history, query.
	AnswerPromptTemplate = `You are a Markdown-ready assistant responding to a conversation.

Use ONLY the following chunks and image links to answer the latest user question in the context of the full discussion.

Each chunk has a source markdown link. Follow these rules:
- Use the link only once, the first time the content is mentioned.
- Use ! in front of links if they are images.
- Only use this information. Do not rely on general knowledge.

---
Chunks:
%s

---
Conversation History:
%s

---
User Query:
%s

Answer the most recent user query.`

	// GeneralPromptTemplate is the open-domain fallback prompt.
	// Args: formatted history, query.
	GeneralPromptTemplate = `Answer this using general knowledge:

%s

New query:
%s`

	// DescribeImageSystemPrompt instructs the vision model.
	DescribeImageSystemPrompt = "Describe the image in great detail, including objects, people, actions, and background elements."

	// DescribeImageUserPrompt is the user turn sent with the image.
	DescribeImageUserPrompt = "Describe this image in full detail."
)

// NoInformationFound is the terminal response when retrieval finds nothing
// and general-knowledge fallback is disallowed.
const NoInformationFound = "Sorry, we couldn't find any relevant topics or matching content in your uploaded documents to answer your question."
